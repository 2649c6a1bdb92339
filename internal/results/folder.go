package results

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
)

// RunFolder builds <base>/<label>/<start>_<end>/<data file name>. The time range
// level is only added when a bound is set.
func RunFolder(base string, label string, dataPath string, start, end optional.Option[time.Time]) string {
	labelFolder := filepath.Join(base, label)

	var dataFolder string

	if start.IsSome() || end.IsSome() {
		startStr := "all"
		endStr := "all"

		if start.IsSome() {
			startStr = start.Unwrap().Format("20060102")
		}

		if end.IsSome() {
			endStr = end.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(labelFolder, fmt.Sprintf("%s_%s", startStr, endStr))
	} else {
		dataFolder = labelFolder
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	if dataFileName == "" || dataFileName == "." {
		dataFileName = "synthetic"
	}

	return filepath.Join(dataFolder, dataFileName)
}
