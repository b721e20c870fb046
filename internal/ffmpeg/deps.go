package ffmpeg

import (
	"os"
	"os/exec"
)

// fileStatter checks that a configured binary exists.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// envProvider abstracts environment and PATH lookups.
type envProvider interface {
	Getenv(key string) string
	LookPath(file string) (string, error)
}

var (
	_ fileStatter = osFileStatter{}
	_ envProvider = osEnvProvider{}
)

type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnvProvider) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}
