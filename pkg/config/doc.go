/*
Package config holds the constraint configuration a Workspace enforces
at its barrier: which node, atom and edge labels are sticky, and which
edge labels are acyclic.

A Registry is cloned into a Workspace at Open and must be fully
populated before that call; later mutation of the caller's Registry
never affects an already-open Workspace.

Registry can also be loaded from a small YAML document, using
gopkg.in/yaml.v3, so a host process can ship its sticky/acyclic label
policy as a config file alongside the workspace file.
*/
package config
