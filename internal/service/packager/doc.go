// Package packager prepares the release description consumed by opi self-update.
//
// It hashes every artifact of a release folder and writes the YAML
// description next to them. The folder can then be served by opi-server
// (update_folder) or uploaded anywhere reachable through update_url.
package packager
