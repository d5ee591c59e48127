// Command geocalc computes areas, volumes, weights and grid spacings from
// surveyed point files on the command line.
//
//	geocalc area site.csv
//	geocalc volume bottom.csv top.csv --height 3
//	geocalc weight 37 1.8
//	geocalc grid 37
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}
