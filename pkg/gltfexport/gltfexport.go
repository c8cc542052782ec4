// Package gltfexport flattens emitted scene subtrees into glTF 2.0
// documents, so a frustum layout can be inspected in any standard viewer.
package gltfexport

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Limardi/viser/internal/scene"
)

// Export bakes the node trees into a single-scene document. Transforms are
// folded into world-space vertex data, one glTF mesh per drawable. Overlay
// textures are not embedded; textured drawables export with their base
// color only.
func Export(nodes ...*scene.Node) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "viser"

	for _, n := range nodes {
		if n == nil {
			return nil, fmt.Errorf("gltfexport: nil root node")
		}
		flatten(doc, n, mgl64.Vec3{}, mgl64.QuatIdent())
	}
	return doc, nil
}

// Save exports the node trees and writes the document to path.
func Save(path string, nodes ...*scene.Node) error {
	doc, err := Export(nodes...)
	if err != nil {
		return err
	}
	if err := gltf.Save(doc, path); err != nil {
		return fmt.Errorf("gltfexport: save %s: %w", path, err)
	}
	return nil
}

func flatten(doc *gltf.Document, n *scene.Node, origin mgl64.Vec3, orient mgl64.Quat) {
	origin = origin.Add(orient.Rotate(n.Position))
	orient = orient.Mul(n.Rotation)

	if n.Mesh != nil {
		addTriangleMesh(doc, n.Name, n.Mesh, origin, orient)
	}
	if n.Lines != nil {
		addLineMesh(doc, n.Name, n.Lines, origin, orient)
	}
	for _, c := range n.Children {
		flatten(doc, c, origin, orient)
	}
}

func addTriangleMesh(doc *gltf.Document, name string, m *scene.Mesh, origin mgl64.Vec3, orient mgl64.Quat) {
	geom := m.Geometry

	attrs := gltf.PrimitiveAttributes{
		gltf.POSITION: modeler.WritePosition(doc, worldPositions(geom.Positions, origin, orient)),
	}
	if len(geom.Normals) > 0 {
		normals := make([][3]float32, len(geom.Normals))
		for i, v := range geom.Normals {
			normals[i] = toVec3f(orient.Rotate(v))
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
	}
	if len(geom.UVs) > 0 {
		uvs := make([][2]float32, len(geom.UVs))
		for i, v := range geom.UVs {
			uvs[i] = [2]float32{float32(v.X()), float32(v.Y())}
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}

	indices := modeler.WriteIndices(doc, append([]uint32(nil), geom.Indices...))
	material := addMaterial(doc, name, m.Material)

	appendMesh(doc, name, &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(indices),
		Material:   gltf.Index(material),
		Mode:       gltf.PrimitiveTriangles,
	})
}

func addLineMesh(doc *gltf.Document, name string, l *scene.LineSegments, origin mgl64.Vec3, orient mgl64.Quat) {
	indices := make([]uint32, len(l.Points))
	for i := range indices {
		indices[i] = uint32(i)
	}

	material := addMaterial(doc, name, scene.Material{
		Color:       l.Color,
		Opacity:     l.Opacity,
		Transparent: l.Transparent,
	})

	appendMesh(doc, name, &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: modeler.WritePosition(doc, worldPositions(l.Points, origin, orient)),
		},
		Indices:  gltf.Index(modeler.WriteIndices(doc, indices)),
		Material: gltf.Index(material),
		Mode:     gltf.PrimitiveLines,
	})
}

func appendMesh(doc *gltf.Document, name string, prim *gltf.Primitive) {
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name:       name,
		Primitives: []*gltf.Primitive{prim},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: name,
		Mesh: gltf.Index(len(doc.Meshes) - 1),
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
}

func addMaterial(doc *gltf.Document, name string, m scene.Material) int {
	base := [4]float64{
		float64(m.Color[0]) / 255,
		float64(m.Color[1]) / 255,
		float64(m.Color[2]) / 255,
		m.Opacity,
	}
	mat := &gltf.Material{
		Name: name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &base,
			MetallicFactor:  gltf.Float(0),
		},
		DoubleSided: m.DoubleSided,
	}
	if m.Transparent {
		mat.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = append(doc.Materials, mat)
	return len(doc.Materials) - 1
}

func worldPositions(points []mgl64.Vec3, origin mgl64.Vec3, orient mgl64.Quat) [][3]float32 {
	out := make([][3]float32, len(points))
	for i, p := range points {
		out[i] = toVec3f(origin.Add(orient.Rotate(p)))
	}
	return out
}

func toVec3f(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v.X()), float32(v.Y()), float32(v.Z())}
}
