package filelist

import "testing"

func TestFilesListParseAndDisplay(t *testing.T) {
	fl, err := Parse([]string{"usr/", "usr/bin/", "usr/bin/foo"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"usr/", "usr/bin/", "usr/bin/foo"}
	for i, p := range want {
		if fl.Paths[i] != p {
			t.Fatalf("Paths[%d] = %q, want %q", i, fl.Paths[i], p)
		}
	}

	repo := fl.Display(StyleRepo)
	if repo != "%FILES%\nusr/\nusr/bin/\nusr/bin/foo\n" {
		t.Fatalf("repo style = %q", repo)
	}
	db := fl.Display(StyleDB)
	if db != "%FILES%\nusr/\nusr/bin/\nusr/bin/foo\n\n" {
		t.Fatalf("db style = %q", db)
	}
}

func TestFilesListInvariants(t *testing.T) {
	if _, err := Parse([]string{"/etc/foo"}, nil); err == nil {
		t.Fatal("expected absolute path rejection")
	}
	if _, err := Parse([]string{"usr/bin/foo"}, nil); err == nil {
		t.Fatal("expected missing-parent rejection")
	}
	if _, err := Parse([]string{"usr/", "usr/"}, nil); err == nil {
		t.Fatal("expected duplicate rejection")
	}
}

func TestBackupNullDigestDropped(t *testing.T) {
	fl, err := Parse([]string{"etc/", "etc/foo.conf"}, []string{"etc/foo.conf\t(null)"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fl.Backups) != 0 {
		t.Fatalf("expected (null) backup entry to be dropped, got %v", fl.Backups)
	}
}

func TestBackupNotInFilesRejected(t *testing.T) {
	_, err := Parse([]string{"etc/"}, []string{"etc/missing.conf\tdeadbeef"})
	if err == nil {
		t.Fatal("expected rejection of backup entry not present in files")
	}
}
