package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Velocidex/yaml/v2"
	"github.com/alecthomas/kingpin/v2"
	"www.velocidex.com/golang/semwatch/constants"
)

var (
	version = app.Command("version", "Report the binary version and build information.")
)

type versionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	BuildTime string `json:"build_time,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		if command == version.FullCommand() {
			res, err := yaml.Marshal(&versionInfo{
				Name:      "semwatch",
				Version:   constants.VERSION,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "-" + runtime.GOARCH,
				BuildTime: constants.BUILD_TIME,
				Commit:    constants.COMMIT_HASH,
			})
			kingpin.FatalIfError(err, "Unable to encode version.")

			fmt.Printf("%v", string(res))

			if *verbose_flag {
				info, ok := debug.ReadBuildInfo()
				if ok {
					fmt.Printf("\n\nBuild Info:\n%v\n", info)
				}
			}

			return true
		}
		return false
	})
}
