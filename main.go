package main

import "github.com/writewithwrabit/calorietrack/cmd"

func main() {
	cmd.Execute()
}
