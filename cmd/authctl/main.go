package main

import "github.com/iliyamo/course-backoffice/cmd/authctl/cmd"

func main() {
	cmd.Execute()
}
