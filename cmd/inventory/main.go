// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command inventory runs the inventory server and its maintenance tasks.
//
//	inventory serve            HTTP API, schedulers and Discord bot
//	inventory migrate [--down] apply or roll back the schema
//	inventory seed [--force]   load the sample catalog
//	inventory products [--low] list products
//	inventory analytics run    score every product now
//	inventory notify scan      create low stock and activity notifications
//	inventory discord          run only the Discord bot
//
// Configuration comes from the environment and an optional .env file.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
