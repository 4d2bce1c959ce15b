package llvm

import "fmt"

// Emit renders the module as LLVM IR text. With debug info enabled the
// mirror is checked first so a diverged module is never written.
func (c *Compiler) Emit() (string, error) {
	if err := c.VerifyDebugMirror(); err != nil {
		return "", fmt.Errorf("emit: %w", err)
	}
	return c.module.String(), nil
}
