package classfile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/loojk2008/ferrugo/classfile"
	"github.com/loojk2008/ferrugo/runtime"
	"github.com/stretchr/testify/require"
)

func TestParseDrivesMethodFrameThroughTheCore(t *testing.T) {
	cf, err := classfile.Parse(minimalClassBytes())
	require.NoError(t, err)
	require.Equal(t, "Demo", cf.ClassName())
	require.Equal(t, "java/lang/Object", cf.SuperClassName())

	method := cf.GetMethod("run", "()V")
	require.NotNil(t, method)
	require.Equal(t, "run", method.Name(cf.ConstantPool))
	require.Equal(t, "()V", method.Descriptor(cf.ConstantPool))

	var out bytes.Buffer
	jvm := runtime.NewJVM(nil, &out)
	jvm.LoadClass("Demo", cf)
	require.Same(t, cf, jvm.GetClass("Demo"))

	frame := jvm.NewFrame(method, cf, "Demo")
	require.NotNil(t, frame)
	require.Len(t, frame.Code, 1)
	require.EqualValues(t, 0xB1, frame.ReadU1()) // return
}

func TestParseFileReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Demo.class")
	require.NoError(t, os.WriteFile(path, minimalClassBytes(), 0o644))

	cf, err := classfile.ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, "Demo", cf.ClassName())
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := classfile.Parse([]byte{0, 0, 0, 0})
	require.Error(t, err)
}

// minimalClassBytes builds a tiny but well-formed class file by hand:
// one class "Demo" extending java/lang/Object with a single no-arg
// "run" method whose body is just a bare return.
func minimalClassBytes() []byte {
	var buf bytes.Buffer
	u2 := func(v uint16) { buf.WriteByte(byte(v >> 8)); buf.WriteByte(byte(v)) }
	u4 := func(v uint32) {
		buf.WriteByte(byte(v >> 24))
		buf.WriteByte(byte(v >> 16))
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v))
	}
	utf8 := func(s string) {
		buf.WriteByte(classfile.CONSTANT_Utf8)
		u2(uint16(len(s)))
		buf.WriteString(s)
	}
	classRef := func(nameIndex uint16) {
		buf.WriteByte(classfile.CONSTANT_Class)
		u2(nameIndex)
	}

	u4(0xCAFEBABE)
	u2(0)  // minor_version
	u2(52) // major_version

	u2(8)                    // constant_pool_count (entries 1..7)
	utf8("Demo")             // #1
	classRef(1)              // #2 this_class
	utf8("java/lang/Object") // #3
	classRef(3)              // #4 super_class
	utf8("run")              // #5
	utf8("()V")              // #6
	utf8("Code")             // #7

	u2(0x0021) // access_flags
	u2(2)      // this_class
	u2(4)      // super_class
	u2(0)      // interfaces_count
	u2(0)      // fields_count

	u2(1)      // methods_count
	u2(0x0009) // method access_flags (public static)
	u2(5)      // name_index "run"
	u2(6)      // descriptor_index "()V"
	u2(1)      // method attributes_count

	u2(7) // attribute name_index "Code"
	var code bytes.Buffer
	cu2 := func(v uint16) { code.WriteByte(byte(v >> 8)); code.WriteByte(byte(v)) }
	cu4 := func(v uint32) {
		code.WriteByte(byte(v >> 24))
		code.WriteByte(byte(v >> 16))
		code.WriteByte(byte(v >> 8))
		code.WriteByte(byte(v))
	}
	cu2(0) // max_stack
	cu2(1) // max_locals
	body := []byte{0xB1} // return
	cu4(uint32(len(body)))
	code.Write(body)
	cu2(0) // exception_table_length
	cu2(0) // code attributes_count
	u4(uint32(code.Len()))
	buf.Write(code.Bytes())

	u2(0) // class attributes_count

	return buf.Bytes()
}
