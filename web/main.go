package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/renderloop/pathtrace/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenePath := flag.String("scene", "", "JSON scene file to serve (empty uses the built-in Cornell box)")
	flag.Parse()

	// Create and start web server
	webServer, err := server.NewServer(*port, *scenePath, nil)
	if err != nil {
		log.Printf("Error creating server: %v", err)
		os.Exit(1)
	}

	log.Printf("Path Tracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(context.Background()); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
