package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePreflight(t *testing.T, installed map[string]bool, outputs map[string]string) *Preflight {
	t.Helper()
	osRelease := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(osRelease, []byte("NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_ID=\"22.04\"\n"), 0o644))

	return &Preflight{
		LookPath: func(file string) (string, error) {
			if installed[file] {
				return "/usr/bin/" + file, nil
			}
			return "", errors.New("executable file not found in $PATH")
		},
		Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			out, ok := outputs[name+" "+strings.Join(args, " ")]
			if !ok {
				return nil, errors.New("exit status 1")
			}
			return []byte(out), nil
		},
		OSRelease: osRelease,
	}
}

func TestCheck_AllInstalled(t *testing.T) {
	p := fakePreflight(t,
		map[string]bool{"nvidia-smi": true, "docker": true},
		map[string]string{
			"nvidia-smi --query-gpu=driver_version --format=csv,noheader": "550.54.14\n",
			"nvidia-smi --query-gpu=name --format=csv,noheader":           "NVIDIA GB10\nNVIDIA GB10\n",

			"docker --version": "Docker version 27.3.1, build ce12230\n",
		})

	result := p.Check(context.Background())

	assert.Empty(t, result.MissingComponents())
	require.Len(t, result.Components, 2)
	assert.Equal(t, "550.54.14", result.Components[0].Version)
	assert.Equal(t, "Docker version 27.3.1, build ce12230", result.Components[1].Version)
	assert.True(t, result.GPUFound)
	assert.Equal(t, "NVIDIA GB10", result.GPUName)
	assert.Equal(t, "ubuntu", result.OSId)
	assert.Equal(t, "22.04", result.OSVersion)
}

func TestCheck_MissingToolsAreReported(t *testing.T) {
	p := fakePreflight(t, map[string]bool{"docker": true}, map[string]string{})

	result := p.Check(context.Background())

	assert.Equal(t, []string{"nvidia-smi"}, result.MissingComponents())
	assert.Equal(t, "(version unknown)", result.Components[1].Version)
	assert.False(t, result.GPUFound)
}

func TestCheck_MissingOSRelease(t *testing.T) {
	p := fakePreflight(t, nil, nil)
	p.OSRelease = filepath.Join(t.TempDir(), "absent")

	result := p.Check(context.Background())

	assert.Equal(t, "unknown", result.OSId)
	assert.ElementsMatch(t, []string{"nvidia-smi", "docker"}, result.MissingComponents())
}

func TestParseOSRelease(t *testing.T) {
	id, version := parseOSRelease(strings.NewReader("ID=debian\nVERSION_ID=\"12\"\nPRETTY_NAME=\"Debian GNU/Linux 12\"\n"))

	assert.Equal(t, "debian", id)
	assert.Equal(t, "12", version)
}
