package main

import (
	"log"

	"github.com/anoixa/image-api/cmd"
	"github.com/anoixa/image-api/config"
	_ "github.com/anoixa/image-api/docs"
)

// @title        Image API
// @version      1.0
// @description  Stores images per owner and category, backed by a blob directory and a metadata table.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	log.Printf("image-api %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
