//go:build windows

package webgpu

import (
	"fmt"
	"strings"
)

// WGSL compute kernels, embedded as strings so the package carries no
// asset files. The repetitive families (binary arithmetic, scalar
// arithmetic, pointwise math) are rendered from templates at init. Every
// Params struct must mirror the packParams call that feeds it, field for
// field, because the uniform blob is matched by offset alone.

// workgroupSize is baked into every shader as its @workgroup_size.
const workgroupSize = 256

// binaryShader renders the elementwise kernel for one arithmetic
// operator. All four operators share the plumbing; only the store
// expression differs.
func binaryShader(op string) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    result[idx] = a[idx] %s b[idx];
}
`, workgroupSize, op)
}

var (
	addShader = binaryShader("+")
	subShader = binaryShader("-")
	mulShader = binaryShader("*")
	divShader = binaryShader("/")
)

// scalarShader renders the kernel combining every element with one
// scalar constant carried in the uniform params.
func scalarShader(op string) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    result[idx] = input[idx] %s params.scalar;
}
`, workgroupSize, op)
}

var (
	scalarAddShader = scalarShader("+")
	scalarMulShader = scalarShader("*")
)

// unaryShader renders a pointwise kernel computing expr, where x names
// the loaded input element.
func unaryShader(expr string) string {
	return fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }
    let x = input[idx];
    result[idx] = %s;
}
`, workgroupSize, expr)
}

var (
	reluShader    = unaryShader("max(0.0, x)")
	sigmoidShader = unaryShader("1.0 / (1.0 + exp(-x))")
	tanhShader    = unaryShader("tanh(x)")
)

// matmulShader computes C = A @ B with one thread per output cell.
// A is (M, K), B is (K, N), launched on a 2-D grid of 16x16 tiles.
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    M: u32,
    K: u32,
    N: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let col = global_id.x;
    let row = global_id.y;
    if (row >= params.M || col >= params.N) {
        return;
    }

    var acc: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        acc = acc + a[row * params.K + k] * b[k * params.N + col];
    }
    result[row * params.N + col] = acc;
}
`

// transposeShader swaps the axes of a matrix, one thread per cell.
const transposeShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let col = global_id.x;
    let row = global_id.y;
    if (row >= params.rows || col >= params.cols) {
        return;
    }
    result[col * params.rows + row] = input[row * params.cols + col];
}
`

// softmaxShader turns each row of a (rows, cols) matrix into a
// probability distribution, one thread per row. Shifting by the row
// maximum keeps exp() finite for large logits.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }
    let base = row * params.cols;

    var peak = input[base];
    for (var i: u32 = 1u; i < params.cols; i = i + 1u) {
        peak = max(peak, input[base + i]);
    }

    var total: f32 = 0.0;
    for (var i: u32 = 0u; i < params.cols; i = i + 1u) {
        let e = exp(input[base + i] - peak);
        result[base + i] = e;
        total = total + e;
    }

    for (var i: u32 = 0u; i < params.cols; i = i + 1u) {
        result[base + i] = result[base + i] / total;
    }
}
`

// argmaxShader scans each row for the position of its maximum and
// writes the winning index as f32. Ties keep the earliest position.
const argmaxShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let row = global_id.x;
    if (row >= params.rows) {
        return;
    }
    let base = row * params.cols;

    var best = input[base];
    var best_at: u32 = 0u;
    for (var i: u32 = 1u; i < params.cols; i = i + 1u) {
        let v = input[base + i];
        if (v > best) {
            best = v;
            best_at = i;
        }
    }

    result[row] = f32(best_at);
}
`

// globalSumShader folds each workgroup's slice of the input into one
// partial sum. A shared scratch tile halves its active width every
// barrier until lane 0 owns the workgroup total.
var globalSumShader = fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> scratch: array<f32, %d>;

@compute @workgroup_size(%d)
fn main(
    @builtin(global_invocation_id) global_id: vec3<u32>,
    @builtin(local_invocation_id) local_id: vec3<u32>,
    @builtin(workgroup_id) workgroup_id: vec3<u32>
) {
    let lane = local_id.x;
    let gid = global_id.x;

    if (gid < params.size) {
        scratch[lane] = input[gid];
    } else {
        scratch[lane] = 0.0;
    }
    workgroupBarrier();

    for (var width: u32 = %du; width > 0u; width = width >> 1u) {
        if (lane < width) {
            scratch[lane] = scratch[lane] + scratch[lane + width];
        }
        workgroupBarrier();
    }

    if (lane == 0u) {
        result[workgroup_id.x] = scratch[0];
    }
}
`, workgroupSize, workgroupSize, workgroupSize/2)

// conv2dShader performs 2D convolution over one channels-last image.
// Input: [H, W, C_in], kernel: [K_h, K_w, C_in, C_out], bias: [C_out],
// output: [H_out, W_out, C_out]. Taps that land in the border padding
// read as zero: subtracting the pad offset in u32 wraps negative
// coordinates past in_h/in_w, so one compare covers both edges.
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read> bias: array<f32>;
@group(0) @binding(3) var<storage, read_write> output: array<f32>;

struct Params {
    in_h: u32,
    in_w: u32,
    c_in: u32,
    c_out: u32,
    k_h: u32,
    k_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_top: u32,
    pad_left: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let ox = global_id.x;
    let oy = global_id.y;
    let oc = global_id.z;

    if (oy >= params.out_h || ox >= params.out_w) {
        return;
    }

    var acc: f32 = bias[oc];

    for (var ky: u32 = 0u; ky < params.k_h; ky = ky + 1u) {
        for (var kx: u32 = 0u; kx < params.k_w; kx = kx + 1u) {
            let sy = oy * params.stride_h + ky - params.pad_top;
            let sx = ox * params.stride_w + kx - params.pad_left;

            if (sy < params.in_h && sx < params.in_w) {
                for (var ci: u32 = 0u; ci < params.c_in; ci = ci + 1u) {
                    let src = (sy * params.in_w + sx) * params.c_in + ci;
                    let tap = ((ky * params.k_w + kx) * params.c_in + ci) * params.c_out + oc;
                    acc = acc + input[src] * kernel[tap];
                }
            }
        }
    }

    output[(oy * params.out_w + ox) * params.c_out + oc] = acc;
}
`

// maxPool2dShader performs 2D max pooling over one channels-last image.
// Input: [H, W, C], output: [H_out, W_out, C]. Padding taps are skipped,
// so they never win a comparison.
const maxPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    in_h: u32,
    in_w: u32,
    channels: u32,
    k_h: u32,
    k_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_top: u32,
    pad_left: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let ox = global_id.x;
    let oy = global_id.y;
    let ch = global_id.z;

    if (oy >= params.out_h || ox >= params.out_w) {
        return;
    }

    var best: f32 = -3.402823e+38; // -FLT_MAX

    for (var ky: u32 = 0u; ky < params.k_h; ky = ky + 1u) {
        for (var kx: u32 = 0u; kx < params.k_w; kx = kx + 1u) {
            let sy = oy * params.stride_h + ky - params.pad_top;
            let sx = ox * params.stride_w + kx - params.pad_left;

            if (sy < params.in_h && sx < params.in_w) {
                best = max(best, input[(sy * params.in_w + sx) * params.channels + ch]);
            }
        }
    }

    output[(oy * params.out_w + ox) * params.channels + ch] = best;
}
`

// avgPool2dShader performs 2D average pooling over one channels-last
// image. Input: [H, W, C], output: [H_out, W_out, C]. The divisor counts
// only the window taps that overlap the original input, so border
// outputs are true means of the data that exists there.
const avgPool2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> output: array<f32>;

struct Params {
    in_h: u32,
    in_w: u32,
    channels: u32,
    k_h: u32,
    k_w: u32,
    stride_h: u32,
    stride_w: u32,
    pad_top: u32,
    pad_left: u32,
    out_h: u32,
    out_w: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let ox = global_id.x;
    let oy = global_id.y;
    let ch = global_id.z;

    if (oy >= params.out_h || ox >= params.out_w) {
        return;
    }

    var total: f32 = 0.0;
    var taps: u32 = 0u;

    for (var ky: u32 = 0u; ky < params.k_h; ky = ky + 1u) {
        for (var kx: u32 = 0u; kx < params.k_w; kx = kx + 1u) {
            let sy = oy * params.stride_h + ky - params.pad_top;
            let sx = ox * params.stride_w + kx - params.pad_left;

            if (sy < params.in_h && sx < params.in_w) {
                total = total + input[(sy * params.in_w + sx) * params.channels + ch];
                taps = taps + 1u;
            }
        }
    }

    output[(oy * params.out_w + ox) * params.channels + ch] = total / f32(taps);
}
`

// u32Fields renders numbered u32 struct fields for one logical array.
// Uniform buffers pad scalar array elements to 16 bytes, so the
// coordinate-mapping shaders flatten their arrays into plain fields.
func u32Fields(name string) string {
	var sb strings.Builder
	for i := range maxDims {
		fmt.Fprintf(&sb, "    %s_%d: u32,\n", name, i)
	}
	return sb.String()
}

// localU32Array declares an indexable local of maxDims slots.
func localU32Array(name string) string {
	return fmt.Sprintf("    var %s: array<u32, %d>;\n", name, maxDims)
}

// unpackU32s renders the statements gathering numbered params back into
// an indexable local array.
func unpackU32s(name string) string {
	var sb strings.Builder
	sb.WriteString(localU32Array(name))
	for i := range maxDims {
		fmt.Fprintf(&sb, "    %s[%d] = params.%s_%d;\n", name, i, name, i)
	}
	return sb.String()
}

// transposeNDShader permutes up to maxDims axes. One thread per output
// element: decompose the output index into coordinates, then gather
// from the input through the permuted strides.
var transposeNDShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    ndim: u32,
    total_elements: u32,
` + u32Fields("input_shape") + u32Fields("input_strides") + u32Fields("output_strides") + u32Fields("axes") + `}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.total_elements) {
        return;
    }

` + unpackU32s("input_strides") + unpackU32s("output_strides") + unpackU32s("axes") + localU32Array("coords") + `    var rem = idx;
    for (var d: u32 = 0u; d < params.ndim; d = d + 1u) {
        coords[d] = rem / output_strides[d];
        rem = rem % output_strides[d];
    }

    var src: u32 = 0u;
    for (var d: u32 = 0u; d < params.ndim; d = d + 1u) {
        src = src + coords[d] * input_strides[axes[d]];
    }

    result[idx] = input[src];
}
`

// expandShader stretches a tensor to a broadcast shape. Size-one input
// dimensions pin their coordinate to zero, so one source element serves
// every output position along them.
var expandShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    ndim: u32,
    total_elements: u32,
` + u32Fields("input_shape") + u32Fields("input_strides") + u32Fields("output_strides") + `}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.total_elements) {
        return;
    }

` + unpackU32s("input_shape") + unpackU32s("input_strides") + unpackU32s("output_strides") + localU32Array("coords") + `    var rem = idx;
    for (var d: u32 = 0u; d < params.ndim; d = d + 1u) {
        coords[d] = rem / output_strides[d];
        rem = rem % output_strides[d];
    }

    var src: u32 = 0u;
    for (var d: u32 = 0u; d < params.ndim; d = d + 1u) {
        let c = select(coords[d], 0u, input_shape[d] == 1u);
        src = src + c * input_strides[d];
    }

    result[idx] = input[src];
}
`
