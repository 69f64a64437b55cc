package main

import (
	"datdash/cmd"
	"log"
)

func main() {
	apiHandler, settings, err := cmd.InitializeDependencies()
	if err != nil {
		log.Fatal(err)
	}
	err = apiHandler.StartApi(settings.ApiPort)
	if err != nil {
		log.Fatal(err)
	}
}
