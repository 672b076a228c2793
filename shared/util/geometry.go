package util

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Sphere representa uma esfera no espaço 3D.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// ContainsPoint verifica se o ponto está dentro (ou sobre) da esfera.
func (s Sphere) ContainsPoint(p mgl32.Vec3) bool {
	d := p.Sub(s.Center)
	return d.Dot(d) <= s.Radius*s.Radius
}

// SignedDistance retorna a distância com sinal do ponto à superfície da esfera.
func (s Sphere) SignedDistance(p mgl32.Vec3) float32 {
	return p.Sub(s.Center).Len() - s.Radius
}

// Plane representa um plano pelo seu vetor normal unitário e deslocamento:
// os pontos p do plano satisfazem Dot(Normal, p) == Displacement.
// O semiespaço negativo fica do lado oposto à normal.
type Plane struct {
	Normal       mgl32.Vec3
	Displacement float32
}

// SignedDistance retorna a distância com sinal do ponto ao plano
// (positiva do lado da normal).
func (pl Plane) SignedDistance(p mgl32.Vec3) float32 {
	return pl.Normal.Dot(p) - pl.Displacement
}

// Similarity é uma transformação de semelhança: escala uniforme, rotação e translação.
// Aplica na ordem escala → rotação → translação.
type Similarity struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       float32
}

// IdentitySimilarity retorna a transformação identidade.
func IdentitySimilarity() Similarity {
	return Similarity{Rotation: mgl32.QuatIdent(), Scale: 1}
}

// Apply transforma um ponto.
func (t Similarity) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Rotate(p.Mul(t.Scale)).Add(t.Translation)
}

// ApplyToDirection transforma uma direção (ignora translação e escala, só rotaciona).
func (t Similarity) ApplyToDirection(d mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Rotate(d)
}

// Inverse retorna a transformação inversa.
func (t Similarity) Inverse() Similarity {
	invScale := float32(1) / t.Scale
	invRot := t.Rotation.Inverse()
	return Similarity{
		Translation: invRot.Rotate(t.Translation.Mul(-1)).Mul(invScale),
		Rotation:    invRot,
		Scale:       invScale,
	}
}

// Mul compõe duas transformações: (t.Mul(other)).Apply(p) == t.Apply(other.Apply(p)).
func (t Similarity) Mul(other Similarity) Similarity {
	return Similarity{
		Translation: t.Apply(other.Translation),
		Rotation:    t.Rotation.Mul(other.Rotation),
		Scale:       t.Scale * other.Scale,
	}
}

// AABB é uma caixa alinhada aos eixos.
type AABB struct {
	Lower, Upper mgl32.Vec3
}

// Expanded retorna a caixa inflada por uma margem em todos os eixos.
func (b AABB) Expanded(margin float32) AABB {
	m := mgl32.Vec3{margin, margin, margin}
	return AABB{Lower: b.Lower.Sub(m), Upper: b.Upper.Add(m)}
}

// Overlaps verifica sobreposição entre duas caixas.
func (b AABB) Overlaps(other AABB) bool {
	return b.Lower.X() < other.Upper.X() && b.Upper.X() > other.Lower.X() &&
		b.Lower.Y() < other.Upper.Y() && b.Upper.Y() > other.Lower.Y() &&
		b.Lower.Z() < other.Upper.Z() && b.Upper.Z() > other.Lower.Z()
}

// TransformedCorners retorna a AABB que envolve a caixa após uma transformação.
func (b AABB) Transformed(t Similarity) AABB {
	corners := [8]mgl32.Vec3{
		{b.Lower.X(), b.Lower.Y(), b.Lower.Z()},
		{b.Upper.X(), b.Lower.Y(), b.Lower.Z()},
		{b.Lower.X(), b.Upper.Y(), b.Lower.Z()},
		{b.Upper.X(), b.Upper.Y(), b.Lower.Z()},
		{b.Lower.X(), b.Lower.Y(), b.Upper.Z()},
		{b.Upper.X(), b.Lower.Y(), b.Upper.Z()},
		{b.Lower.X(), b.Upper.Y(), b.Upper.Z()},
		{b.Upper.X(), b.Upper.Y(), b.Upper.Z()},
	}
	out := AABB{Lower: t.Apply(corners[0]), Upper: t.Apply(corners[0])}
	for _, c := range corners[1:] {
		p := t.Apply(c)
		out.Lower = mgl32.Vec3{Min(out.Lower.X(), p.X()), Min(out.Lower.Y(), p.Y()), Min(out.Lower.Z(), p.Z())}
		out.Upper = mgl32.Vec3{Max(out.Upper.X(), p.X()), Max(out.Upper.Y(), p.Y()), Max(out.Upper.Z(), p.Z())}
	}
	return out
}
