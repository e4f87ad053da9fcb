// Package audiomap turns a list of selected audio stream indices into ordered
// map/copy/transcode directives for the external encoder. Codec
// classification is a configurable list of anchored regular expressions so
// operators can extend the policy without touching the decision logic.
package audiomap
