// 包 version：构建期注入的版本信息，通过 -ldflags "-X volley-globe/internal/version.Commit=..." 写入
package version

var Commit = "dev"
