// Package cli implements the interactive postboard client: a read-eval-print
// loop over the REST API with prompts for credentials and post content.
package cli
