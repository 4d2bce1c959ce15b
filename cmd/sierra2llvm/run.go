package main

import (
	"fmt"
	"math/big"

	"github.com/llir/llvm/ir/types"
	"github.com/spf13/cobra"

	"sierra2llvm/internal/backend/llvm"
	"sierra2llvm/internal/irexec"
	"sierra2llvm/internal/sierra"
)

var runCmd = &cobra.Command{
	Use:   "run <input> <function> [args...]",
	Short: "Lower a program and evaluate one of its functions",
	Long: "Lower the input program and evaluate the named function on decimal\n" +
		"arguments. Negative arguments are passed in two's complement.",
	Args: cobra.MinimumNArgs(2),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().Bool("signed", false, "print the result as a signed value")
}

func runExecution(cmd *cobra.Command, args []string) error {
	signed, err := cmd.Flags().GetBool("signed")
	if err != nil {
		return err
	}
	input, fnName := args[0], args[1]
	callArgs, err := parseArgs(args[2:])
	if err != nil {
		return err
	}

	prog, err := sierra.Decode(input)
	if err != nil {
		return err
	}
	c, err := llvm.LowerProgram(cmd.Context(), prog, llvm.Options{SourceFile: input})
	if err != nil {
		return err
	}
	fn, ok := c.Func(fnName)
	if !ok {
		return fmt.Errorf("%s: no function %q", input, fnName)
	}
	res, err := irexec.Call(c.Module(), fnName, callArgs...)
	if err != nil {
		return err
	}
	if signed {
		rt, ok := fn.Sig.RetType.(*types.IntType)
		if !ok {
			return fmt.Errorf("%s returns %s, not an integer", fnName, fn.Sig.RetType)
		}
		if res, err = irexec.Signed(res, rt.BitSize); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.String())
	return nil
}

func parseArgs(raw []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(raw))
	for i, s := range raw {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("argument %d: %q is not a decimal integer", i+1, s)
		}
		out[i] = v
	}
	return out, nil
}
