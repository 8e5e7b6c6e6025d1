/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/wentf9/showcmd/cmd"

func main() {
	cmd.Execute()
}
