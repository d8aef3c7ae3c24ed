// Package commands implements the sourcehealth command tree.
package commands
