package walker

import "google.golang.org/protobuf/reflect/protoreflect"

// Path is the set of message types currently being expanded along one
// recursive descent. A type is added when the descent enters it and removed
// when it leaves, so the set never reflects siblings or finished branches.
type Path map[protoreflect.FullName]struct{}

// Enter adds md to the path. It returns false without modifying the path if md
// is already on it, which means the descent is about to recurse into itself.
func (p Path) Enter(md protoreflect.MessageDescriptor) bool {
	if _, ok := p[md.FullName()]; ok {
		return false
	}
	p[md.FullName()] = struct{}{}
	return true
}

// Leave removes md from the path.
func (p Path) Leave(md protoreflect.MessageDescriptor) {
	delete(p, md.FullName())
}

// Contains reports whether md is on the path.
func (p Path) Contains(md protoreflect.MessageDescriptor) bool {
	_, ok := p[md.FullName()]
	return ok
}
