package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	want := []string{
		"overview", "user", "participants", "rewards", "is-admin",
		"deposit", "withdraw", "autocompound", "send-external", "compound-all",
		"receipt", "serve",
	}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, name := range []string{"send-external", "compound-all"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, cmd.Flags().Lookup("force"), name)
	}
	dep, _, err := root.Find([]string{"deposit"})
	require.NoError(t, err)
	assert.Nil(t, dep.Flags().Lookup("force"))
	assert.NotNil(t, dep.Flags().Lookup("gas-limit"))
}

func TestArgumentValidation(t *testing.T) {
	tests := [][]string{
		{"deposit"},
		{"send-external", "0x00000000000000000000000000000000000000aa"},
		{"autocompound", "maybe"},
		{"user"},
	}
	for _, args := range tests {
		root := newRootCmd()
		root.PersistentPreRunE = nil
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		assert.Error(t, root.Execute(), "%v", args)
	}
}
