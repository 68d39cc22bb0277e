// mcp-s3 — stdio сервер инструментов для поиска файлов в S3 по нечёткому имени.
//
// Без подкоманды запускает serve. Остальные команды нужны для отладки:
//
//	mcp-s3 query "patients 2024"   # разовый поиск
//	mcp-s3 inspect                 # интерактивный поиск (TUI)
//	mcp-s3 tools                   # описание инструментов в JSON
package main

import "os"

// version подставляется при сборке: -ldflags "-X main.version=1.2.3"
var version = "dev"

func main() {
	os.Exit(Execute())
}
