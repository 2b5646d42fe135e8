// Package scenegraph contains the node abstraction the grouping engine works on, and the adapters that produce nodes.
//
// The host application's scene graph is never modelled directly. A Node only exposes what grouping needs: a name,
// ordered children, vertex and polygon counts, and an optional material name. A node is either a group (children, no
// geometry) or a geometry leaf (geometry, no children).
//
// Current implementations:
//   - Object:
//     A plain struct that serializes to JSON and BSON. Scene manifests posted by the host-side traversal plugin decode
//     into Objects.
//   - gltfNode:
//     An adapter over a glTF document, so scenes can be partitioned outside of the host application.
package scenegraph
