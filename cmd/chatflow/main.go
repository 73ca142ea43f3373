// Command chatflow serves, validates and simulates conversation flows.
package main

func main() {
	Execute()
}
