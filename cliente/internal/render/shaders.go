package render

const objectVertexShader = `
#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
in vec4 vertexColor;

uniform mat4 mvp;
uniform mat4 matModel;
uniform mat4 matNormal;

out vec2 fragTexCoord;
out vec4 fragColor;
out vec3 fragNormal;
out vec3 fragWorldPos;

void main() {
    fragTexCoord = vertexTexCoord;
    fragColor = vertexColor;
    fragNormal = normalize(vec3(matNormal * vec4(vertexNormal, 0.0)));
    fragWorldPos = vec3(matModel * vec4(vertexPosition, 1.0));
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

const objectFragmentShader = `
#version 330
in vec2 fragTexCoord;
in vec4 fragColor;
in vec3 fragNormal;
in vec3 fragWorldPos;

uniform vec4 colDiffuse;
uniform vec3 camPos;

out vec4 finalColor;

// Ruído simples para quebrar a uniformidade da superfície
float hash(vec2 p) {
    return fract(sin(dot(p, vec2(127.1, 311.7))) * 43758.5453123);
}

void main() {
    vec3 normal = normalize(fragNormal);

    // Sol fixo + luz de preenchimento fraca do lado oposto
    vec3 lightDir = normalize(vec3(0.5, 0.8, 0.3));
    float diff = max(dot(normal, lightDir), 0.0);
    float fill = max(dot(normal, -lightDir), 0.0) * 0.15;
    vec3 ambient = vec3(0.25, 0.25, 0.28);
    vec3 light = ambient + vec3(0.85) * diff + vec3(fill);

    vec4 base = fragColor * colDiffuse;
    float n = hash(floor(fragTexCoord * 24.0));
    base.rgb *= (0.92 + 0.16 * n);
    base.rgb *= light;

    // Specular discreto para dar leitura de volume nas rochas
    vec3 viewDir = normalize(camPos - fragWorldPos);
    vec3 halfVec = normalize(lightDir + viewDir);
    float spec = pow(max(dot(normal, halfVec), 0.0), 32.0);
    base.rgb += spec * vec3(0.25);

    // Fog exponencial ao fundo
    float dist = length(camPos - fragWorldPos);
    float fogFactor = clamp(exp(-pow(dist * 0.004, 2.0)), 0.0, 1.0);
    vec3 fogColor = vec3(0.05, 0.05, 0.09);

    finalColor = vec4(mix(fogColor, base.rgb, fogFactor), 1.0);
}
`
