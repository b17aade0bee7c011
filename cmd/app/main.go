package main

import (
	"quote-management-api/app"
)

func main() {
	app.Run()
}
