package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/musui/musui-server/archiveservice"
)

func main() {
	if err := archiveservice.Run(); err != nil {
		log.Error().Err(err).Msg("musui-server exited with error")
		os.Exit(1)
	}
}
