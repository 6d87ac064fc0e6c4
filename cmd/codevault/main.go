// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/codevault/pkg/cmd"
)

//	@title			CodeVault API
//	@version		0.3.0
//	@description	CodeVault 通过一次性访问码分享文件与链接：拥有者上传并设置访问码，领取人凭访问码兑换一次.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
