package validate

import (
	"fmt"
	"path/filepath"
)

// Method names a measurement method.
type Method string

const (
	MethodE Method = "E"
	MethodF Method = "F"
	MethodG Method = "G"
	MethodH Method = "H"
)

// AllMethods lists the methods in evaluation order.
var AllMethods = []Method{MethodE, MethodF, MethodG, MethodH}

// ParseMethod accepts "E", "e", "Method_E" and similar.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "E", "e", "Method_E":
		return MethodE, nil
	case "F", "f", "Method_F":
		return MethodF, nil
	case "G", "g", "Method_G":
		return MethodG, nil
	case "H", "h", "Method_H":
		return MethodH, nil
	}
	return "", fmt.Errorf("unknown method %q (valid: E, F, G, H)", s)
}

// Dir is the directory the pipeline writes a method's files to.
func Dir(root string, m Method) string {
	return filepath.Join(root, "Fundamental_Diagram", "Method_"+string(m))
}

// FilePath is the output file for one metric group of an area.
func FilePath(root string, m Method, metric, trajectory string, areaID int) string {
	return filepath.Join(Dir(root, m), fmt.Sprintf("%s_%s_id_%d.dat", metric, trajectory, areaID))
}

// LineFilePath is the output file for one metric group of a counting line.
func LineFilePath(root string, m Method, metric, trajectory string, areaID, lineID int) string {
	return filepath.Join(Dir(root, m), fmt.Sprintf("%s_%s_id_%d_line_%d.dat", metric, trajectory, areaID, lineID))
}
