// Command chartsrv serves and ingests S-57/ENC and CM93 electronic
// navigational charts as vector and raster map tiles.
package main

import "github.com/chartsrv/chartsrv/internal/cmd"

func main() {
	cmd.Execute()
}
