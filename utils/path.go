package utils

func NewPath(s ...string) Path {
	p := Path{}
	p = append(p, s...)
	return p
}

type Path []string

func (p *Path) AddString(s ...string) Path {
	return append(*p, s...)
}
