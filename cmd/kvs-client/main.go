// Command kvs-client is a one-shot CLI for set/get/rm against a
// running kvs-server.
package main

import (
	"errors"
	"fmt"
	"os"

	"kvs/internal/client"

	flag "github.com/spf13/pflag"
)

var errWrongArgs = errors.New("wrong number of arguments")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kvs-client <set|get|rm> [args] [--addr host:port]")
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "set":
		return cmdSet(rest)
	case "get":
		return cmdGet(rest)
	case "rm":
		return cmdRemove(rest)
	default:
		fmt.Fprintln(os.Stderr, "error: unknown command", cmd)
		return 1
	}
}

func cmdSet(args []string) int {
	flagSet := flag.NewFlagSet("set", flag.ContinueOnError)
	addr := flagSet.String("addr", "127.0.0.1:4000", "server address")
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if flagSet.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "error:", errWrongArgs, "(want: set <key> <value>)")
		return 1
	}

	c := client.New(*addr)
	if err := c.Set(flagSet.Arg(0), flagSet.Arg(1)); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func cmdGet(args []string) int {
	flagSet := flag.NewFlagSet("get", flag.ContinueOnError)
	addr := flagSet.String("addr", "127.0.0.1:4000", "server address")
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if flagSet.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error:", errWrongArgs, "(want: get <key>)")
		return 1
	}

	c := client.New(*addr)
	value, found, err := c.Get(flagSet.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if !found {
		fmt.Println("Key not found")
		return 0
	}
	fmt.Println(value)
	return 0
}

func cmdRemove(args []string) int {
	flagSet := flag.NewFlagSet("rm", flag.ContinueOnError)
	addr := flagSet.String("addr", "127.0.0.1:4000", "server address")
	if err := flagSet.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	if flagSet.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error:", errWrongArgs, "(want: rm <key>)")
		return 1
	}

	c := client.New(*addr)
	if err := c.Remove(flagSet.Arg(0)); err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			fmt.Println("Key not found")
			return 1
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
