package format

import (
	"fmt"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// snapshotModule is one representative module: an export, a type
// declaration with two constructors, a function with a match, and an
// effectful main built from let and call forms. Imports, value
// declarations, lambdas, if, assert and contracts are not covered here.
const snapshotModule = `@demo.shapes{
E[area];
T Shape=Circle(I32)|Square(I32);
F area:(s:Shape)->I32!{}=m(s){Circle(r)=>c(*,r,r);Square(w)=>c(*,w,w);};
F main:()->I32!{io}=v(r=c(println,c(str_cat,"area=","known")),v(a=area(Circle(3)),0));
}`

func TestSnapshotReadableRendering(t *testing.T) {
	mod := parseOrFail(t, snapshotModule)
	snaps.MatchSnapshot(t, "readable", Readable(mod))
}

func TestSnapshotCompressedRendering(t *testing.T) {
	mod := parseOrFail(t, snapshotModule)
	snaps.MatchSnapshot(t, "compressed", Compressed(mod))
}
