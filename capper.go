package edgelabel

// 裁剪到bbox（可先取边界线），多部件逐部件处理，保持顺序
func Cap(e GeometryEngine, gs []Geometry, bbox BBox, justBoundaries bool) (ret []Geometry) {
	if len(gs) == 0 {
		return
	}
	rect := BBoxPolygon(e, bbox)
	ret = make([]Geometry, 0, len(gs))
	capOne := func(g Geometry) Geometry {
		if justBoundaries {
			g = e.Boundary(g)
		}
		return e.Intersection(g, rect)
	}
	for _, g := range gs {
		if e.Kind(g).IsMulti() {
			for _, part := range e.Parts(g) {
				ret = append(ret, capOne(part))
			}
			continue
		}
		ret = append(ret, capOne(g))
	}
	return
}
