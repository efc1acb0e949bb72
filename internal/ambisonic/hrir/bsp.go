package hrir

// bspNode is a node of the face BSP tree: an internal node splits its
// faces by which side of an axis-aligned plane (at threshold on the
// chosen axis) their centroid falls on; a leaf holds the remaining face
// indices for direct testing.
type bspNode struct {
	axis      int // 0, 1, or 2: the coordinate the split compares
	threshold float64
	left      *bspNode
	right     *bspNode
	faces     []int // leaf only
}

const bspLeafSize = 4

// buildBSP recursively partitions faceIndices by the coordinate axis
// with the greatest spread among the corresponding centroids, splitting
// at the median so the tree stays balanced and queries are O(log F).
func buildBSP(faceIndices []int, centroids [][3]float64, depth int) *bspNode {
	if len(faceIndices) <= bspLeafSize || depth > 32 {
		leaf := make([]int, len(faceIndices))
		copy(leaf, faceIndices)
		return &bspNode{faces: leaf}
	}

	axis := widestAxis(faceIndices, centroids)
	threshold := medianOnAxis(faceIndices, centroids, axis)

	var left, right []int
	for _, fi := range faceIndices {
		if centroids[fi][axis] < threshold {
			left = append(left, fi)
		} else {
			right = append(right, fi)
		}
	}
	// degenerate split (all centroids equal on this axis): force a leaf
	if len(left) == 0 || len(right) == 0 {
		leaf := make([]int, len(faceIndices))
		copy(leaf, faceIndices)
		return &bspNode{faces: leaf}
	}

	return &bspNode{
		axis:      axis,
		threshold: threshold,
		left:      buildBSP(left, centroids, depth+1),
		right:     buildBSP(right, centroids, depth+1),
	}
}

func widestAxis(faceIndices []int, centroids [][3]float64) int {
	var min, max [3]float64
	min = centroids[faceIndices[0]]
	max = centroids[faceIndices[0]]
	for _, fi := range faceIndices {
		c := centroids[fi]
		for a := 0; a < 3; a++ {
			if c[a] < min[a] {
				min[a] = c[a]
			}
			if c[a] > max[a] {
				max[a] = c[a]
			}
		}
	}
	best := 0
	bestSpread := max[0] - min[0]
	for a := 1; a < 3; a++ {
		if spread := max[a] - min[a]; spread > bestSpread {
			bestSpread = spread
			best = a
		}
	}
	return best
}

func medianOnAxis(faceIndices []int, centroids [][3]float64, axis int) float64 {
	values := make([]float64, len(faceIndices))
	for i, fi := range faceIndices {
		values[i] = centroids[fi][axis]
	}
	// insertion sort: faceIndices per node is small in practice (bounded
	// by mesh resolution), so an O(n^2) sort avoids pulling in sort.Slice
	// closures on the hot construction path.
	for i := 1; i < len(values); i++ {
		v := values[i]
		j := i - 1
		for j >= 0 && values[j] > v {
			values[j+1] = values[j]
			j--
		}
		values[j+1] = v
	}
	return values[len(values)/2]
}

// query descends the tree toward the side matching dir's coordinate on
// each split axis, returning the leaf's candidate face indices. Because
// the split only separates by centroid position, the caller must treat
// the result as candidates, not a guaranteed match.
func (n *bspNode) query(dir [3]float64) []int {
	for n.left != nil {
		if dir[n.axis] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.faces
}
