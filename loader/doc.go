// Package loader reads OPA compiled bundles: gzip-compressed tar
// archives carrying /policy.wasm and, optionally, /data.json.
package loader
