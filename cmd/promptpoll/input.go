package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	errNoInput     = errors.New("input ended before a value was given")
	errNotInteger  = errors.New("please enter a valid integer")
	errNotPositive = errors.New("number of requests must be a positive integer")
)

// readPrompt asks once; an empty prompt is allowed.
func readPrompt(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter your prompt: ")
	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", errNoInput
	}
	return strings.TrimSpace(line), nil
}

// readCount asks until it gets a positive integer.
func readCount(in *bufio.Reader, out io.Writer) (int, error) {
	for {
		fmt.Fprint(out, "Enter the number of API calls to make: ")
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return 0, errNoInput
		}

		n, perr := parseCount(strings.TrimSpace(line))
		if perr == nil {
			return n, nil
		}
		fmt.Fprintln(out, perr.Error())
		if err != nil {
			return 0, errNoInput
		}
	}
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || strings.HasPrefix(s, "+") {
		return 0, errNotInteger
	}
	if n <= 0 {
		return 0, errNotPositive
	}
	return n, nil
}
