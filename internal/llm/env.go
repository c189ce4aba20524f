package llm

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// cliTmpDir is the clean temp directory for claude CLI invocations.
// A dedicated directory keeps editor socket files out of the CLI's TMPDIR.
var cliTmpDir = filepath.Join(os.TempDir(), "casegen-claude")

// SetCleanEnv configures a command to use a clean TMPDIR.
func SetCleanEnv(cmd *exec.Cmd) {
	_ = os.MkdirAll(cliTmpDir, 0755)

	cmd.Env = os.Environ()
	for i, env := range cmd.Env {
		if strings.HasPrefix(env, "TMPDIR=") {
			cmd.Env[i] = "TMPDIR=" + cliTmpDir
			return
		}
	}
	cmd.Env = append(cmd.Env, "TMPDIR="+cliTmpDir)
}
