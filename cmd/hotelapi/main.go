package main

import "github.com/crawdale/hotel/cmd/hotelapi/cmd"

func main() {
	cmd.Execute()
}
