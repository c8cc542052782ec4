package graphics

import (
	"fmt"
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Limardi/viser/internal/scene"
)

const meshVertexSrc = `#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 worldNormal;
out vec2 uv;

void main() {
    worldNormal = mat3(model) * aNormal;
    uv = aUV;
    gl_Position = projection * view * model * vec4(aPos, 1.0);
}
`

const meshFragmentSrc = `#version 410 core
in vec3 worldNormal;
in vec2 uv;

uniform vec3 baseColor;
uniform float opacity;
uniform bool useTexture;
uniform vec3 headlightDir;
uniform sampler2D tex;

out vec4 fragColor;

void main() {
    vec3 color = baseColor;
    float alpha = opacity;
    if (useTexture) {
        vec4 texel = texture(tex, uv);
        color *= texel.rgb;
        alpha *= texel.a;
    }
    vec3 n = normalize(worldNormal);
    // Headlight lambert, lit from both sides so double-sided faces read.
    float diffuse = abs(dot(n, -headlightDir));
    float shade = 0.35 + 0.65 * diffuse;
    fragColor = vec4(color * shade, alpha);
}
`

const lineVertexSrc = `#version 410 core
layout (location = 0) in vec3 aPos;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

void main() {
    gl_Position = projection * view * model * vec4(aPos, 1.0);
}
`

const lineFragmentSrc = `#version 410 core
uniform vec3 baseColor;
uniform float opacity;

out vec4 fragColor;

void main() {
    fragColor = vec4(baseColor, opacity);
}
`

// meshBuffers is the GPU residence of one scene.Geometry.
type meshBuffers struct {
	vao, vbo, ebo uint32
	indexCount    int32
	lastUsed      uint64
}

type textureEntry struct {
	id       uint32
	lastUsed uint64
}

// drawCmd is one drawable gathered from the node walk. Transparent
// commands are deferred and sorted back-to-front.
type drawCmd struct {
	model mgl64.Mat4
	mesh  *scene.Mesh
	lines *scene.LineSegments
	depth float64
}

// Renderer owns the GL state needed to draw emitted node trees: two
// shader programs, a geometry cache keyed on *scene.Geometry and a
// texture cache keyed on *scene.Texture.
type Renderer struct {
	meshShader *Shader
	lineShader *Shader

	meshes   map[*scene.Geometry]*meshBuffers
	textures map[*scene.Texture]*textureEntry

	// Streaming buffer reused for every line primitive.
	lineVAO, lineVBO uint32
	lineCap          int

	frame uint64

	opaque      []drawCmd
	transparent []drawCmd
}

func NewRenderer() (*Renderer, error) {
	meshShader, err := NewShader(meshVertexSrc, meshFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("mesh shader: %w", err)
	}
	lineShader, err := NewShader(lineVertexSrc, lineFragmentSrc)
	if err != nil {
		meshShader.Dispose()
		return nil, fmt.Errorf("line shader: %w", err)
	}

	r := &Renderer{
		meshShader: meshShader,
		lineShader: lineShader,
		meshes:     make(map[*scene.Geometry]*meshBuffers),
		textures:   make(map[*scene.Texture]*textureEntry),
	}

	gl.GenVertexArrays(1, &r.lineVAO)
	gl.GenBuffers(1, &r.lineVBO)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	return r, nil
}

// Draw renders the given node trees with the given camera. Opaque
// drawables go first, then transparent ones sorted far to near.
func (r *Renderer) Draw(roots []*scene.Node, cam *OrbitCamera) {
	r.frame++
	r.opaque = r.opaque[:0]
	r.transparent = r.transparent[:0]

	eye := cam.Position()
	eye64 := mgl64.Vec3{float64(eye.X()), float64(eye.Y()), float64(eye.Z())}

	for _, root := range roots {
		r.gather(root, mgl64.Ident4(), eye64)
	}

	sort.SliceStable(r.transparent, func(i, j int) bool {
		return r.transparent[i].depth > r.transparent[j].depth
	})

	view := cam.GetViewMatrix()
	proj := cam.GetProjectionMatrix()
	forward := cam.Target.Sub(eye).Normalize()

	r.meshShader.Use()
	r.meshShader.SetMatrix4("view", &view[0])
	r.meshShader.SetMatrix4("projection", &proj[0])
	r.meshShader.SetVector3("headlightDir", forward.X(), forward.Y(), forward.Z())
	r.meshShader.SetInt("tex", 0)

	r.lineShader.Use()
	r.lineShader.SetMatrix4("view", &view[0])
	r.lineShader.SetMatrix4("projection", &proj[0])

	for i := range r.opaque {
		r.execute(&r.opaque[i])
	}
	for i := range r.transparent {
		r.execute(&r.transparent[i])
	}

	r.prune()
}

func (r *Renderer) gather(n *scene.Node, parent mgl64.Mat4, eye mgl64.Vec3) {
	if n == nil {
		return
	}
	local := mgl64.Translate3D(n.Position.X(), n.Position.Y(), n.Position.Z()).
		Mul4(n.Rotation.Mat4())
	world := parent.Mul4(local)

	origin := world.Col(3).Vec3()
	depth := origin.Sub(eye).Len()

	if n.Mesh != nil && n.Mesh.Geometry != nil {
		cmd := drawCmd{model: world, mesh: n.Mesh, depth: depth}
		if n.Mesh.Material.Transparent {
			r.transparent = append(r.transparent, cmd)
		} else {
			r.opaque = append(r.opaque, cmd)
		}
	}
	if n.Lines != nil && len(n.Lines.Points) >= 2 {
		cmd := drawCmd{model: world, lines: n.Lines, depth: depth}
		if n.Lines.Transparent {
			r.transparent = append(r.transparent, cmd)
		} else {
			r.opaque = append(r.opaque, cmd)
		}
	}

	for _, c := range n.Children {
		r.gather(c, world, eye)
	}
}

func (r *Renderer) execute(cmd *drawCmd) {
	model := mat4To32(cmd.model)
	if cmd.mesh != nil {
		r.drawMesh(cmd.mesh, &model)
		return
	}
	r.drawLines(cmd.lines, &model)
}

func (r *Renderer) drawMesh(m *scene.Mesh, model *mgl32.Mat4) {
	buf := r.uploadGeometry(m.Geometry)
	buf.lastUsed = r.frame

	mat := m.Material
	r.meshShader.Use()
	r.meshShader.SetMatrix4("model", &model[0])
	r.meshShader.SetVector3("baseColor",
		float32(mat.Color[0])/255, float32(mat.Color[1])/255, float32(mat.Color[2])/255)
	r.meshShader.SetFloat("opacity", float32(mat.Opacity))

	if mat.Texture != nil && mat.Texture.Image != nil {
		entry, ok := r.textures[mat.Texture]
		if !ok {
			entry = &textureEntry{id: UploadTexture(mat.Texture.Image)}
			r.textures[mat.Texture] = entry
		}
		entry.lastUsed = r.frame
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, entry.id)
		r.meshShader.SetBool("useTexture", true)
	} else {
		r.meshShader.SetBool("useTexture", false)
	}

	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
	}
	gl.DepthMask(mat.DepthWrite)

	gl.BindVertexArray(buf.vao)
	gl.DrawElements(gl.TRIANGLES, buf.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.Disable(gl.CULL_FACE)
}

func (r *Renderer) drawLines(l *scene.LineSegments, model *mgl32.Mat4) {
	r.lineShader.Use()
	r.lineShader.SetMatrix4("model", &model[0])
	r.lineShader.SetVector3("baseColor",
		float32(l.Color[0])/255, float32(l.Color[1])/255, float32(l.Color[2])/255)
	r.lineShader.SetFloat("opacity", float32(l.Opacity))

	width := float32(l.Width)
	if width < 1 {
		width = 1
	}
	gl.LineWidth(width)

	verts := make([]float32, 0, len(l.Points)*3)
	for _, p := range l.Points {
		verts = append(verts, float32(p.X()), float32(p.Y()), float32(p.Z()))
	}

	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	if len(verts) > r.lineCap {
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STREAM_DRAW)
		r.lineCap = len(verts)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(verts))
	}
	gl.DrawArrays(gl.LINES, 0, int32(len(l.Points)))
	gl.BindVertexArray(0)
}

// uploadGeometry interleaves position/normal/uv into a single VBO. A
// geometry pointer is its cache key; producers reuse pointers for
// unchanged geometry, so a hit means the buffers are current.
func (r *Renderer) uploadGeometry(g *scene.Geometry) *meshBuffers {
	if buf, ok := r.meshes[g]; ok {
		return buf
	}

	const stride = 8 // pos(3) + normal(3) + uv(2)
	verts := make([]float32, 0, len(g.Positions)*stride)
	for i, p := range g.Positions {
		verts = append(verts, float32(p.X()), float32(p.Y()), float32(p.Z()))
		if i < len(g.Normals) {
			n := g.Normals[i]
			verts = append(verts, float32(n.X()), float32(n.Y()), float32(n.Z()))
		} else {
			verts = append(verts, 0, 0, 1)
		}
		if i < len(g.UVs) {
			uv := g.UVs[i]
			verts = append(verts, float32(uv.X()), float32(uv.Y()))
		} else {
			verts = append(verts, 0, 0)
		}
	}

	buf := &meshBuffers{indexCount: int32(len(g.Indices))}
	gl.GenVertexArrays(1, &buf.vao)
	gl.GenBuffers(1, &buf.vbo)
	gl.GenBuffers(1, &buf.ebo)

	gl.BindVertexArray(buf.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(g.Indices)*4, gl.Ptr(g.Indices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride*4, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride*4, 6*4)
	gl.EnableVertexAttribArray(2)
	gl.BindVertexArray(0)

	r.meshes[g] = buf
	return buf
}

// prune drops GPU resources for geometries and textures no draw has
// touched recently, e.g. after an overlay image is replaced.
func (r *Renderer) prune() {
	const keepFrames = 300
	if r.frame%keepFrames != 0 {
		return
	}
	for g, buf := range r.meshes {
		if r.frame-buf.lastUsed > keepFrames {
			gl.DeleteVertexArrays(1, &buf.vao)
			gl.DeleteBuffers(1, &buf.vbo)
			gl.DeleteBuffers(1, &buf.ebo)
			delete(r.meshes, g)
		}
	}
	for t, entry := range r.textures {
		if r.frame-entry.lastUsed > keepFrames {
			gl.DeleteTextures(1, &entry.id)
			delete(r.textures, t)
		}
	}
}

// Dispose releases every GL object the renderer owns.
func (r *Renderer) Dispose() {
	for _, buf := range r.meshes {
		gl.DeleteVertexArrays(1, &buf.vao)
		gl.DeleteBuffers(1, &buf.vbo)
		gl.DeleteBuffers(1, &buf.ebo)
	}
	r.meshes = make(map[*scene.Geometry]*meshBuffers)
	for _, entry := range r.textures {
		gl.DeleteTextures(1, &entry.id)
	}
	r.textures = make(map[*scene.Texture]*textureEntry)
	gl.DeleteVertexArrays(1, &r.lineVAO)
	gl.DeleteBuffers(1, &r.lineVBO)
	r.meshShader.Dispose()
	r.lineShader.Dispose()
}

func mat4To32(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := 0; i < 16; i++ {
		out[i] = float32(m[i])
	}
	return out
}
