package buildinfo

import (
	goversion "github.com/caarlos0/go-version"
)

// ldflags で上書きされます。
var (
	Version   = "dev"
	Commit    = ""
	Date      = ""
	TreeState = ""
	BuiltBy   = ""
)

const (
	appName        = "personnel-core"
	appDescription = "Personnel record authorization and consistency engine"
	appURL         = "https://github.com/ogurasousui/personnel-core"
)

// Info はビルド情報を返します。command は各バイナリ名です。
func Info(command string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails(appName+" "+command, appDescription, appURL),
		func(i *goversion.Info) {
			if Version != "" {
				i.GitVersion = Version
			}
			if Commit != "" {
				i.GitCommit = Commit
			}
			if Date != "" {
				i.BuildDate = Date
			}
			if TreeState != "" {
				i.GitTreeState = TreeState
			}
			if BuiltBy != "" {
				i.BuiltBy = BuiltBy
			}
		},
	)
}
