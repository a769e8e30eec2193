package model

import (
	"testing"
)

func TestUserCan(t *testing.T) {
	tests := []struct {
		name string
		role *Role
		perm Permission
		want bool
	}{
		{
			name: "user role can follow",
			role: &Role{Permissions: PermFollow | PermComment | PermWriteArticles},
			perm: PermFollow,
			want: true,
		},
		{
			name: "user role cannot moderate",
			role: &Role{Permissions: PermFollow | PermComment | PermWriteArticles},
			perm: PermModerateComments,
			want: false,
		},
		{
			name: "moderator can moderate",
			role: &Role{Permissions: PermFollow | PermComment | PermWriteArticles | PermModerateComments},
			perm: PermModerateComments,
			want: true,
		},
		{
			name: "exact match required for combined bits",
			role: &Role{Permissions: PermFollow},
			perm: PermFollow | PermComment,
			want: false,
		},
		{
			name: "admin superset grants everything defined",
			role: &Role{Permissions: AdminPermissions},
			perm: PermFollow | PermComment | PermWriteArticles | PermModerateComments | PermAdminister,
			want: true,
		},
		{
			name: "no role denies everything",
			role: nil,
			perm: PermFollow,
			want: false,
		},
		{
			name: "zero permission always granted",
			role: &Role{Permissions: 0},
			perm: 0,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.Can(tt.perm); got != tt.want {
				t.Errorf("Can(%#x) = %v, want %v", tt.perm, got, tt.want)
			}
		})
	}
}

func TestUserIsAdministrator(t *testing.T) {
	admin := &User{Role: &Role{Permissions: AdminPermissions}}
	if !admin.IsAdministrator() {
		t.Error("admin role not recognized as administrator")
	}

	moderator := &User{Role: &Role{Permissions: PermFollow | PermComment | PermModerateComments}}
	if moderator.IsAdministrator() {
		t.Error("moderator role recognized as administrator")
	}
}

func TestAnonymousDeniesEverything(t *testing.T) {
	var p Principal = Anonymous{}

	for _, perm := range []Permission{PermFollow, PermComment, PermWriteArticles, PermModerateComments, PermAdminister, 0x10, 0x20} {
		if p.Can(perm) {
			t.Errorf("anonymous granted %#x", perm)
		}
	}
	if p.IsAdministrator() {
		t.Error("anonymous recognized as administrator")
	}
}

func TestNoFlagCollisions(t *testing.T) {
	flags := []Permission{PermFollow, PermComment, PermWriteArticles, PermModerateComments, PermAdminister}
	var seen Permission
	for _, f := range flags {
		if seen&f != 0 {
			t.Errorf("flag %#x overlaps previously defined bits %#x", f, seen)
		}
		seen |= f
	}
}
