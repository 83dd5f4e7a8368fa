package systems

// Builtin shader sources. Every fragment shader shares the default vertex
// stage; all sampling happens over the unit quad with v_texcoord in [0,1].

const defaultVertexSrc = `#version 330 core
in vec2 a_position;
in vec2 a_texcoord;

uniform mat4 u_view_projection;
uniform mat4 u_model;

out vec2 v_texcoord;

void main() {
	v_texcoord = a_texcoord;
	gl_Position = u_view_projection * u_model * vec4(a_position, 0.0, 1.0);
}
`

const defaultFragmentSrc = `#version 330 core
in vec2 v_texcoord;

uniform sampler2D u_texture;
uniform float u_opacity;
uniform float u_brightness;
uniform float u_contrast;
uniform float u_saturation;
uniform float u_hue_shift;

out vec4 frag_color;

vec3 adjust(vec3 color) {
	color += vec3(u_brightness);
	color = (color - 0.5) * u_contrast + 0.5;
	float luma = dot(color, vec3(0.299, 0.587, 0.114));
	color = mix(vec3(luma), color, u_saturation);
	float c = cos(u_hue_shift);
	float s = sin(u_hue_shift);
	mat3 hue = mat3(
		0.299 + 0.701*c + 0.168*s, 0.587 - 0.587*c + 0.330*s, 0.114 - 0.114*c - 0.497*s,
		0.299 - 0.299*c - 0.328*s, 0.587 + 0.413*c + 0.035*s, 0.114 - 0.114*c + 0.292*s,
		0.299 - 0.300*c + 1.250*s, 0.587 - 0.588*c - 1.050*s, 0.114 + 0.886*c - 0.203*s);
	return clamp(color * hue, 0.0, 1.0);
}

void main() {
	vec4 texel = texture(u_texture, v_texcoord);
	frag_color = vec4(adjust(texel.rgb), texel.a) * u_opacity;
}
`

const chromaKeyFragmentSrc = `#version 330 core
in vec2 v_texcoord;

uniform sampler2D u_texture;
uniform float u_opacity;
uniform vec3 u_key_color;
uniform float u_key_threshold;
uniform float u_key_smoothness;

out vec4 frag_color;

void main() {
	vec4 texel = texture(u_texture, v_texcoord);
	float dist = distance(texel.rgb, u_key_color);
	float alpha = smoothstep(u_key_threshold, u_key_threshold + u_key_smoothness, dist);
	frag_color = vec4(texel.rgb, texel.a * alpha) * u_opacity;
}
`

const blurFragmentSrc = `#version 330 core
in vec2 v_texcoord;

uniform sampler2D u_texture;
uniform float u_opacity;
uniform float u_blur_radius;
uniform vec2 u_texel_size;

out vec4 frag_color;

void main() {
	vec4 sum = vec4(0.0);
	float weight = 0.0;
	for (int x = -4; x <= 4; x++) {
		for (int y = -4; y <= 4; y++) {
			vec2 offset = vec2(float(x), float(y)) * u_texel_size * (u_blur_radius / 4.0);
			float w = 1.0 / (1.0 + float(x*x + y*y));
			sum += texture(u_texture, v_texcoord + offset) * w;
			weight += w;
		}
	}
	frag_color = (sum / weight) * u_opacity;
}
`

const sharpenFragmentSrc = `#version 330 core
in vec2 v_texcoord;

uniform sampler2D u_texture;
uniform float u_opacity;
uniform float u_sharpen_amount;
uniform vec2 u_texel_size;

out vec4 frag_color;

void main() {
	vec4 center = texture(u_texture, v_texcoord);
	vec4 blurred =
		texture(u_texture, v_texcoord + vec2(u_texel_size.x, 0.0)) +
		texture(u_texture, v_texcoord - vec2(u_texel_size.x, 0.0)) +
		texture(u_texture, v_texcoord + vec2(0.0, u_texel_size.y)) +
		texture(u_texture, v_texcoord - vec2(0.0, u_texel_size.y));
	vec4 detail = center - blurred * 0.25;
	frag_color = clamp(center + detail * u_sharpen_amount, 0.0, 1.0) * u_opacity;
}
`

const vignetteFragmentSrc = `#version 330 core
in vec2 v_texcoord;

uniform sampler2D u_texture;
uniform float u_opacity;
uniform float u_vignette_radius;
uniform float u_vignette_softness;
uniform float u_vignette_amount;

out vec4 frag_color;

void main() {
	vec4 texel = texture(u_texture, v_texcoord);
	float dist = distance(v_texcoord, vec2(0.5));
	float falloff = smoothstep(u_vignette_radius, u_vignette_radius - u_vignette_softness, dist);
	float shade = mix(1.0, falloff, u_vignette_amount);
	frag_color = vec4(texel.rgb * shade, texel.a) * u_opacity;
}
`
