package epub

import (
	"archive/zip"
	"bytes"
	"testing"
)

type fixtureFile struct {
	Name   string
	Body   string
	Stored bool // written uncompressed so tests can corrupt the bytes in place
}

// buildArchive creates an in-memory ZIP with the given entries in order.
func buildArchive(t *testing.T, files ...fixtureFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		method := zip.Deflate
		if f.Name == "mimetype" || f.Stored {
			method = zip.Store
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.Name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", f.Name, err)
		}
		if _, err := fw.Write([]byte(f.Body)); err != nil {
			t.Fatalf("failed to write %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return buf.Bytes()
}

func mimetypeFile() fixtureFile {
	return fixtureFile{Name: "mimetype", Body: "application/epub+zip"}
}

func containerFile(fullPath string) fixtureFile {
	return fixtureFile{Name: "META-INF/container.xml", Body: `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="` + fullPath + `" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`}
}

func xhtmlFile(name, title, body string) fixtureFile {
	return fixtureFile{Name: name, Body: `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>` + title + `</title></head>
<body>` + body + `</body>
</html>`}
}

const sampleOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Sample Book</dc:title>
    <dc:creator opf:role="aut">Jane Doe</dc:creator>
    <dc:publisher>Example Press</dc:publisher>
    <dc:description>A sample.</dc:description>
    <dc:language>en</dc:language>
    <dc:identifier id="uid">urn:uuid:1234</dc:identifier>
    <dc:identifier opf:scheme="ISBN">9784000000000</dc:identifier>
    <dc:subject>Fiction</dc:subject>
    <dc:subject>  </dc:subject>
    <dc:subject>Drama</dc:subject>
    <meta name="cover" content="cover"/>
  </metadata>
  <manifest>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch%202.xhtml" media-type="application/xhtml+xml"/>
    <item id="cover" href="images/cover.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`
