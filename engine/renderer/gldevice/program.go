package gldevice

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Carmen-Shannon/oxy-shader/engine/shader/codegen"
	"github.com/Carmen-Shannon/oxy-shader/engine/shader/ir"
)

func (d *device) CompileProgram(label string, sources *codegen.Sources) (uint32, error) {
	program := gl.CreateProgram()
	var shaders []uint32
	defer func() {
		for _, sh := range shaders {
			gl.DetachShader(program, sh)
			gl.DeleteShader(sh)
		}
	}()

	for _, k := range []ir.StageKind{ir.StageVertex, ir.StageFragment, ir.StageCompute} {
		src := sources.Stage(k)
		if src == "" {
			continue
		}
		sh, err := compileShader(shaderTypes[k], src)
		if err != nil {
			gl.DeleteProgram(program)
			return 0, fmt.Errorf("gldevice: %s %s stage: %w", label, k, err)
		}
		shaders = append(shaders, sh)
		gl.AttachShader(program, sh)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
		lg := strings.Repeat("\x00", int(n+1))
		gl.GetProgramInfoLog(program, n, nil, gl.Str(lg))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("gldevice: %s link: %s: %w", label, strings.TrimRight(lg, "\x00"), ErrCompile)
	}
	d.logger.Debug("gl program linked", "label", label, "program", program, "stages", len(shaders))
	return program, nil
}

func compileShader(kind uint32, src string) (uint32, error) {
	sh := gl.CreateShader(kind)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &n)
		lg := strings.Repeat("\x00", int(n+1))
		gl.GetShaderInfoLog(sh, n, nil, gl.Str(lg))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("%s: %w", strings.TrimRight(lg, "\x00"), ErrCompile)
	}
	return sh, nil
}

func (d *device) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}
