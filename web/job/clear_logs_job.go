package job

import (
	"errors"
	"io/fs"
	"os"

	"github.com/offerly/storefront/logger"
)

// ClearLogsJob keeps one previous generation of the log file: the current file
// replaces the .prev copy and is truncated.
type ClearLogsJob struct {
	path string
}

func NewClearLogsJob(path string) *ClearLogsJob {
	return &ClearLogsJob{path: path}
}

// Here Run is an interface method of the Job interface
func (j *ClearLogsJob) Run() {
	if j.path == "" {
		return
	}
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		logger.Warning("clear logs job err:", err)
		return
	}
	if err := os.WriteFile(j.path+".prev", data, 0o640); err != nil {
		logger.Warning("clear logs job err:", err)
		return
	}
	if err := os.Truncate(j.path, 0); err != nil {
		logger.Warning("clear logs job err:", err)
	}
}
