// Command fsmrun validates and runs table-defined state machines.
//
//	fsmrun validate machine.yaml
//	fsmrun run machine.yaml E2 E2 E1 E1
//	printf 'E2\nE1\n' | fsmrun run machine.yaml
package main

func main() {
	Execute()
}
