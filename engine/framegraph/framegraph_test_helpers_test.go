package framegraph

import "github.com/duskforge/oxyfg/engine/resources"

// fakePass is a minimal Pass implementation for compiler/executor tests: it
// declares a fixed NodeInfo and records whether Execute/CreateResources ran.
type fakePass struct {
	NoResources
	info    NodeInfo
	ran     *[]string
	created *int
}

func (p *fakePass) Info() NodeInfo { return p.info }

func (p *fakePass) Execute(ctx ExecuteContext) error {
	if p.ran != nil {
		*p.ran = append(*p.ran, p.info.Name)
	}
	return nil
}

func (p *fakePass) CreateResources(pool *Pool) error {
	if p.created != nil {
		*p.created++
	}
	return nil
}

func rw(h LogicalResourceHandle, kind resources.UsageKind) ReadWrite {
	return ReadWrite{Handle: h, Usage: kind}
}
