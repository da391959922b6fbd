package main

import "github.com/agentfoundry/agent-setup/cmd/agent-setup/cmd"

func main() {
	cmd.Execute()
}
