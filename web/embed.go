// Package web 打包页面模板、翻译文件与静态资源，二进制部署时无需额外目录
package web

import "embed"

//go:embed views
var Views embed.FS

//go:embed locales
var Locales embed.FS

//go:embed static
var Static embed.FS
