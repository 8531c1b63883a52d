// Package web 内嵌页面模板和静态资源，二进制部署时无需额外文件。
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html static/*
var files embed.FS

// Templates 解析全部页面模板，模板名即文件名
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}

// Static 供 gin StaticFS 挂载到 /static
func Static() http.FileSystem {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		// 目录在编译期已嵌入，这里只会在路径写错时触发
		panic(err)
	}
	return http.FS(sub)
}
